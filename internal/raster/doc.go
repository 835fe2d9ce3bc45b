// Package raster implements the geometric image operations of the capture
// pipeline: perspective rectification, document-edge quad suggestion, and the
// shared resize/encode helpers used when an image leaves the pipeline.
//
// # Coordinate Systems
//
// Two coordinate spaces appear in this package:
//
//   - Pixel space: standard Go image coordinates. (0,0) is the top-left
//     pixel, X increases rightward, Y increases downward.
//   - Unit space: NormalizedQuad corners live in [0,1]×[0,1] with the Y axis
//     pointing up, matching the coordinate convention of the handle-drag UI
//     that produces them. Y=1 is the visual top of the image.
//
// Converting a unit-space corner to pixel space therefore flips the Y axis:
//
//	px = x * width
//	py = (1 - y) * height
//
// The flip is part of the contract; callers that render quad handles must use
// the same convention or the transform will be vertically mirrored.
//
// # Failure Policy
//
// Rectification and quad suggestion are best-effort. Rectify never returns an
// error: when the requested transform cannot be computed it returns its input
// unchanged. SuggestQuad reports whether a document outline was actually
// found; on failure it returns the centered default quad.
package raster
