package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/mcdev12/partyroom/go/internal/config"
	"github.com/mcdev12/partyroom/go/internal/session"
	"github.com/mcdev12/partyroom/go/internal/viewserver"
)

func setupServer(cfg *config.Config, sess *session.Session) *viewserver.Server {
	return viewserver.New(cfg.View.Addr, sess)
}

// joinURL is the page players open to join room.
func joinURL(serverURL, room string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/play/" + url.PathEscape(room)
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// printJoinCode shows the join URL as a terminal QR code on the host screen.
func printJoinCode(serverURL, room string) {
	link, err := joinURL(serverURL, room)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build join url")
		return
	}
	q, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode join qr code")
		return
	}
	fmt.Println(q.ToSmallString(false))
	fmt.Println("Join at", link)
}
