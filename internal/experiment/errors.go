package experiment

import (
	"errors"
	"fmt"
)

// ErrCampaignAborted matches every error that stopped a campaign early.
var ErrCampaignAborted = errors.New("campaign aborted")

// DeviceInstallError reports that the network could not build the channel or
// a device. Node is -1 when the shared channel itself failed.
type DeviceInstallError struct {
	Node int
	Err  error
}

func (e *DeviceInstallError) Error() string {
	if e.Node < 0 {
		return fmt.Sprintf("install channel: %v", e.Err)
	}
	return fmt.Sprintf("install device for node %d: %v", e.Node, e.Err)
}

func (e *DeviceInstallError) Unwrap() error { return e.Err }

// AbortedError is returned by Campaign.Run when a run failed in a way that
// makes the rest of the campaign meaningless.
type AbortedError struct {
	Run int
	Err error
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("%v: run %d: %v", ErrCampaignAborted, e.Run, e.Err)
}

func (e *AbortedError) Unwrap() []error { return []error{ErrCampaignAborted, e.Err} }
