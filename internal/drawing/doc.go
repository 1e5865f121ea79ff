// Package drawing implements the annotation engine: freehand strokes captured
// from pointer input, kept in a session-scoped store, rendered onto a raster
// surface and serialised to the persisted JSON shape.
//
// Coordinates inside the engine are always in the native pixel space of the
// drawing surface. Viewport (CSS) coordinates only exist at the edge, in
// Normalize.
//
// The engine is organised as:
//   - pure state transitions over State (Begin, Extend, Finish, Clear),
//   - a pure Render(surface, state),
//   - Canvas, the session object that routes pointer and touch input through
//     the transitions and notifies the owner of every committed change.
package drawing
