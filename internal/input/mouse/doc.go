// Package mouse defines mouse event types for the input pipeline.
//
// Events carry an action (down, up, move, drag, scroll), the button, the
// zero-based cell position, keyboard modifiers held at the time, and the
// target slot resolved from the registry's hit test. ClickTracker layers
// single/double/triple click classification on top of raw down events.
package mouse
