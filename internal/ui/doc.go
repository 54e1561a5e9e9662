// Package ui implements the live progress view for `glx run --tui` using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [RunView] : spinner, the current engine message and a scrolling log of finished projects
//  2. [ResultView] : the run summary and a browsable list of every record in the store
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the ExportEngine, providing non-blocking status reporting during the batch.
//
// Pressing q or ctrl+c during a run cancels the engine's context. The model keeps
// draining updates until the engine returns, so the caller can still persist the
// store before the program exits.
package ui
