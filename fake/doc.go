// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations of the device collaborators for testing.
// Each double records its calls and can be told to fail.
package fake
