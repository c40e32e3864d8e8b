// Package hostbridge lets a remote host controller drive an engine over
// socket.io. The controller emits one event per boundary call and the
// bridge answers each with "<event>_result". Calls are served one at a
// time, in arrival order, on the goroutine that runs Serve, so the engine
// stays single-threaded no matter which goroutine the socket library
// delivers events on.
package hostbridge
