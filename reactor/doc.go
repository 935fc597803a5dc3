// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness poller driving the connection
// multiplexer: level-triggered epoll on Linux, an error stub elsewhere.
package reactor
