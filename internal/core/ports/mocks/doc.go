// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior backed by an in-memory map or slice
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for inspecting recorded state
//
// # Usage Example
//
//	func TestPipeline(t *testing.T) {
//		presets := mocks.NewPresetStore()
//		presets.Set("u1", "coach", "")
//
//		p := pipeline.New(deps, pipeline.WithPresetReader(presets))
//		// ... test behavior
//	}
//
// # Available Mocks
//
//   - DiaryLogStore: implements ports.DiaryLogStore
//   - PresetStore: implements ports.PresetStore
package mocks
