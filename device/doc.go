// Package device
// Author: momentics <momentics@gmail.com>
//
// Reference implementations of the device collaborators: a 1-bpp
// framebuffer panel, the remote render client, file-backed resources, the
// WiFi station and the daily calendar refresh.
package device
