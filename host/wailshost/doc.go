// Package wailshost runs the application inside a Wails webview.
//
// The host itself is only compiled with the "desktop" build tag, which
// pulls in the native webview toolchain. The asset middleware in this
// package builds everywhere so it can be tested headless.
package wailshost
