// Package detection extracts straight line segments from images.
//
// The segments feed vanishing point estimation, so the detector favours long,
// straight edges and caps how many it returns.
//
// # Algorithm Overview
//
// DetectSegments runs a probabilistic-Hough style pipeline:
//
//  1. Edge Map: Gaussian blur, grayscale conversion and Sobel magnitude (bild),
//     thresholded into a binary edge map
//  2. Voting: every edge pixel votes for the (rho, theta) lines through it,
//     one degree per theta bin
//  3. Peaks: local maxima above the vote threshold; while more than
//     MaxSegments peaks qualify the threshold is raised by 10
//  4. Tracing: edge pixels near each peak line are ordered along it and split
//     wherever the gap exceeds MaxGap; runs shorter than MinLength are dropped
//
// Images smaller than 400x400 pixels in area use two thirds of the vote
// threshold.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Performance Considerations
//
// Voting is O(edge pixels x 180) and tracing is O(peaks x edge pixels). For
// large photographs, resize to a processing width first.
package detection
