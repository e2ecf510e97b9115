// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package seqring

// RaceEnabled is true when the race detector is active.
// Used by tests to skip cross-variable ordering stress tests, which
// trigger false positives under the detector's happens-before model.
const RaceEnabled = true
