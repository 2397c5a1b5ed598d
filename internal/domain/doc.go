// Package domain contains the core entities of wallrotate.
//
// It has no dependencies on infrastructure (file system, OS wallpaper calls,
// logging) and holds only plain values and the error taxonomy.
//
// # Entities
//
//   - [RotationState]: the persisted record (last update, visited images)
//   - [RotationConfig]: operator-owned settings (interval, directories)
//   - [Trigger]: why an attempt was started
//   - [Outcome]: what a single rotation attempt did
package domain
