// Package crossing provides the vehicle models and shared types for the
// autocross intersection optimizer.
//
// # Reading Guide
//
// Start with these files to understand the pipeline:
//   - vehicle.go: Bounds, Preferences and the validated Vehicle
//   - kinematics.go: the Kinematics interface and its variants (unicycle, bicycle)
//   - errors.go: the error taxonomy shared by every stage
//
// # Architecture
//
// The crossing package owns the data model; each pipeline stage lives in a
// sub-package:
//   - crossing/nlp/: the constrained nonlinear program solver capability
//   - crossing/trajectory/: per-vehicle optimal-control cost for a fixed crossing time
//   - crossing/reference/: straight and turning reference paths
//   - crossing/costcurve/: crossing-time sweeps and fitted cost curves
//   - crossing/assign/: joint crossing-time assignment under a shared budget
//   - crossing/schedule/: slot ordering and schedule cost evaluation
//   - crossing/artifact/, crossing/store/, crossing/plot/: persistence and rendering
//
// Data flows Vehicle -> trajectory -> costcurve -> assign -> schedule.
package crossing
