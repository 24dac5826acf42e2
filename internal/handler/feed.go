package handler

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"strconv"
	"strings"
	"scanserver/internal/config"
	"scanserver/internal/logger"
	"scanserver/internal/model"
	"scanserver/internal/service"
)

// maxDatagram holds the largest UDP payload, so a datagram is never cut.
const maxDatagram = 64 << 10

// ListenFeed opens the UDP socket decoder feeds send their observations to.
func ListenFeed(config *config.Config) (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(config.FeedPort))
	if err != nil {
		return nil, err
	}
	return net.ListenUDP("udp", addr)
}

// UDPFeedHandler reads datagrams of "code,errorScore" lines from decoder
// feeds and hands them to the Manager. It returns when conn is closed.
func UDPFeedHandler(conn *net.UDPConn, manager *service.Manager, logger *logger.Logger, config *config.Config) {
	logger.Info("UDP decoder feed listening on %s", conn.LocalAddr())
	buffer := make([]byte, maxDatagram)

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Info("UDP decoder feed closed")
				return
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		feedName := feedName(remoteAddr, config.FeedNames)
		observations := ParseFeedLines(buffer[:n])
		if len(observations) == 0 {
			logger.Warning("Empty datagram from feed %s", feedName)
			continue
		}

		snap, recorded := manager.HandleObservations(observations)
		if recorded < len(observations) {
			logger.Warning("Feed %s: %d of %d observations ignored, session %s is stopped",
				feedName, len(observations)-recorded, len(observations), snap.SessionID)
		}
	}
}

func feedName(addr *net.UDPAddr, names map[string]string) string {
	ip := addr.IP.String()
	if name, ok := names[ip]; ok {
		return name
	}
	return "unknown_" + ip
}

// ParseFeedLines parses one observation per non-empty line. A missing or
// unparsable error score becomes -1, which the aggregator rejects as
// malformed while still counting it.
func ParseFeedLines(data []byte) []model.Observation {
	var observations []model.Observation

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		code, rawScore, _ := strings.Cut(line, ",")
		score, err := strconv.ParseFloat(strings.TrimSpace(rawScore), 64)
		if err != nil {
			score = -1
		}
		observations = append(observations, model.Observation{Code: strings.TrimSpace(code), ErrorScore: score})
	}
	return observations
}
