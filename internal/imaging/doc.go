// Package imaging loads images for the vanishing point server and prepares
// them for line detection.
//
// Decoding and resampling go through github.com/disintegration/imaging. All
// coordinates are 0-based pixels with (0,0) at the top-left corner, X growing
// rightward and Y growing downward.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Frames and the images they hold are
// treated as read-only once cached.
//
// # Processing Frames
//
// Large photographs are detected at a reduced processing width (see NewFrame).
// A Frame records the scale factor so results found on the reduced image can
// be reported in original pixel coordinates.
package imaging
