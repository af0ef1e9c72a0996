// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package test

import "testing"

// MarkAsShort marks the test as a short test.
// Short tests run in every test mode.
func MarkAsShort(tb testing.TB) {
	tb.Helper()
}
