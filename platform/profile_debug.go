//go:build !release

package platform

const buildProfile = Debug
