package core

import "fmt"

// InvalidChannelError reports a channel document that could be
// retrieved but failed parsing or validation. It is distinct from
// transport errors, which wrap the network or filesystem failure that
// prevented retrieval.
type InvalidChannelError struct {
	Location string
	Reason   string
}

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("channel %s does not appear to be a valid channel file because %s",
		e.Location, e.Reason)
}
