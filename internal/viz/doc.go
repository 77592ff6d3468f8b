// Package viz draws a running solver in the terminal.
//
// The package is a pure reader of solver state:
//
//   - [Renderer]: maps dye, pressure or speed to colours through colorgrad
//     palettes and draws them with half blocks
//   - [Canvas]: braille dot canvas used for streamlines
//   - [Recorder]: paletted GIF capture of one field
//   - [Model]: Bubble Tea program that steps the solver on every tick
//   - [Picker]: preset menu in front of [Model]
//
// # Key Bindings
//
//	Space - Pause/Resume
//	.     - Single step while paused
//	R     - Reset the scene
//	V     - Cycle views
//	I     - Toggle injectors
//	S     - Toggle streamlines
//	G     - Toggle GIF recording
//	T     - Cycle themes
package viz
