// Package watch feeds new camera captures into the reader.
//
// A camera drops timestamped JPEGs into a directory. Watcher notices each
// new file through fsnotify, ignores repeat events for the same name within
// the debounce window, waits until the file stops growing, and moves it to
// a fixed name (latest.jpg) before handing it to the processing callback.
// Captures are processed one at a time in arrival order.
package watch
