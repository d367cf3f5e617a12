// Package gauge reads analogue gauges from still photographs.
//
// A Pipeline runs each Frame through a fixed chain of stages:
//
//  1. Normalize: resize to the profile's canonical resolution, smooth, gray
//  2. ApplyMask: paint the dead zone (bezel, screws, print) with a neutral value
//  3. LocateNeedle: find the dominant line through the pivot and its angle
//  4. ValueMapper: interpolate the angle between calibration control points
//  5. Assess: label the result good, bad or uncertain from thresholds
//  6. ReviewGate: ask a human about uncertain results, bad by default
//
// Every stage is also exported on its own so tools can show intermediate
// results.
//
// # Angles
//
// Absolute directions use the mathematical convention: radians, 0 at
// 3 o'clock, counter-clockwise positive, with image Y pointing down. A
// Profile turns them into relative angles in [0, 2π) from its ReferenceAxis,
// counting clockwise when Clockwise is set. Control points are expressed in
// relative angles.
//
// # Errors
//
// ErrInvalidFrame and ErrProfileMismatch abort an invocation. A missing
// needle is not an error: it yields a zero-confidence Observation and a bad
// Reading, so every acquired frame produces exactly one Reading.
//
// # Concurrency
//
// Profiles are read-only once a Pipeline is built. Frames, observations and
// readings belong to the invocation that created them, so Process is safe to
// call concurrently.
package gauge
