// Package audiodev wraps miniaudio (via malgo) for microphone capture and
// speaker playback. All capture is mono float32; playback accepts mono
// float32 buffers at an arbitrary sample rate.
package audiodev

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// OutputSelector identifies the playback device to use. The zero value
// selects the system default. Name matching is a case-insensitive substring
// match against the device description; Index, when >= 0, takes precedence.
type OutputSelector struct {
	Index int
	Name  string
}

// DefaultOutput selects the system default playback device.
func DefaultOutput() OutputSelector {
	return OutputSelector{Index: -1}
}

// Context owns the underlying miniaudio context. A single Context serves
// any number of capture and playback devices and must outlive them all.
type Context struct {
	ctx *malgo.AllocatedContext
}

// NewContext initializes the audio backend.
func NewContext() (*Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audiodev: init context: %w", err)
	}
	return &Context{ctx: ctx}, nil
}

// Close tears down the audio backend. Devices opened from this context must
// be closed first.
func (c *Context) Close() error {
	if c.ctx == nil {
		return nil
	}
	err := c.ctx.Uninit()
	c.ctx.Free()
	c.ctx = nil
	if err != nil {
		return fmt.Errorf("audiodev: uninit context: %w", err)
	}
	return nil
}

// PlaybackDevices lists the names of all playback devices, in enumeration
// order.
func (c *Context) PlaybackDevices() ([]string, error) {
	infos, err := c.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("audiodev: enumerate playback devices: %w", err)
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

// resolveOutput returns the device ID pointer for the selected playback
// device, or nil for the system default.
func (c *Context) resolveOutput(sel OutputSelector) (unsafe.Pointer, error) {
	if sel.Index < 0 && sel.Name == "" {
		return nil, nil
	}

	infos, err := c.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("audiodev: enumerate playback devices: %w", err)
	}

	if sel.Index >= 0 {
		if sel.Index >= len(infos) {
			return nil, fmt.Errorf("audiodev: playback device index %d out of range (%d devices)", sel.Index, len(infos))
		}
		return infos[sel.Index].ID.Pointer(), nil
	}

	want := strings.ToLower(sel.Name)
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), want) {
			return infos[i].ID.Pointer(), nil
		}
	}
	return nil, fmt.Errorf("audiodev: no playback device matching %q", sel.Name)
}
