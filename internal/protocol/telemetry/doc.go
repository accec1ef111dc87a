// Package telemetry decodes the binary payloads carried by A_D and A_R frames
// and the A_M marker line. All numeric fields are little-endian.
//
// A_R payload layout:
//
//	int64   timestamp
//	int32   frame sequence
//	float64 fps, led_left, led_right, test_duration
//	float64 X[k], Y[k], Z[k], TX[k], TY[k], TZ[k]
//
// A_D payload is a flat run of float64 samples.
package telemetry
