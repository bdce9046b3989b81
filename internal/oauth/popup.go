package oauth

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	log "github.com/sirupsen/logrus"
	"github.com/upwatch/upwatch-cli/internal/browser"
)

// Popup models the secondary browsing context from the bridge's point of
// view: something that can be opened at a URL, observed for being closed, and
// force-closed. The bridge polls Closed once per second and treats a close
// with no message received as user cancellation.
type Popup interface {
	Open(url string) error
	Closed() bool
	Close()
}

// popupFactory creates the secondary context for one sign-in attempt and
// returns the message channel and origin of its callback receiver.
type popupFactory func() (popup Popup, messages <-chan Message, origin string, callbackURL string, err error)

// browserPopup is the production secondary context: a local callback receiver
// plus the user's own browser pointed at the authorize URL.
type browserPopup struct {
	receiver  *CallbackReceiver
	noBrowser bool
}

func newBrowserPopupFactory(port int, noBrowser bool) popupFactory {
	return func() (Popup, <-chan Message, string, string, error) {
		receiver := NewCallbackReceiver(port)
		if err := receiver.Start(); err != nil {
			return nil, nil, "", "", err
		}
		p := &browserPopup{receiver: receiver, noBrowser: noBrowser}
		return p, receiver.Messages(), receiver.Origin(), receiver.CallbackURL(), nil
	}
}

// Open points the secondary context at the authorize URL. With browsers
// disabled the URL is printed and copied to the clipboard for the user to
// open by hand.
func (p *browserPopup) Open(url string) error {
	if p.noBrowser {
		fmt.Printf("Open this URL in your browser to continue signing in:\n%s\n", url)
		if err := clipboard.WriteAll(url); err == nil {
			fmt.Println("(the URL has been copied to your clipboard)")
		} else {
			log.Debugf("clipboard copy failed: %v", err)
		}
		return nil
	}
	if err := browser.OpenURL(url); err != nil {
		return err
	}
	return nil
}

// Closed reports whether the secondary context has wound down. An external
// browser tab cannot be observed directly, so the receiver's own lifecycle
// stands in for it: once a terminal message has been delivered the context
// counts as closed.
func (p *browserPopup) Closed() bool {
	return p.receiver.Finished()
}

// Close releases the receiver.
func (p *browserPopup) Close() {
	if err := p.receiver.Stop(context.Background()); err != nil {
		log.Debugf("callback receiver stop: %v", err)
	}
}
