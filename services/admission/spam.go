// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package admission

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/crustyhub/crustyhub/modules/log"
	"github.com/crustyhub/crustyhub/modules/setting"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s)]+`)

// Content is the user-submitted text of a write request.
type Content struct {
	Title       string
	Body        string
	Description string
}

type spamRecord struct {
	score           int
	lastUpdate      time.Time
	writeTimestamps []time.Time
	contentHashes   map[string]int
}

// SpamDetector scores write requests per IP and bans repeat offenders.
type SpamDetector struct {
	mu      sync.Mutex
	records map[string]*spamRecord
	bans    map[string]time.Time

	blockThreshold int
	banThreshold   int
	banDuration    time.Duration
	window         time.Duration
	patterns       []*regexp.Regexp

	now func() time.Time
}

// NewSpamDetector builds the detector from the admission settings. Invalid
// banned-content patterns are logged and skipped.
func NewSpamDetector() *SpamDetector {
	d := &SpamDetector{
		records:        make(map[string]*spamRecord),
		bans:           make(map[string]time.Time),
		blockThreshold: setting.Admission.SpamBlockThreshold,
		banThreshold:   setting.Admission.SpamBanThreshold,
		banDuration:    setting.Admission.SpamBanDuration,
		window:         setting.Admission.SpamWindow,
		now:            time.Now,
	}
	for _, p := range setting.Admission.BannedContentPatterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			log.Warn("invalid banned content pattern %q: %v", p, err)
			continue
		}
		d.patterns = append(d.patterns, re)
	}
	return d
}

// CheckBan denies requests from currently banned IPs with a Retry-After
// reflecting the remaining ban duration.
func (d *SpamDetector) CheckBan(ip string) *Denial {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiry, ok := d.bans[ip]
	if !ok {
		return nil
	}
	now := d.now()
	if !now.Before(expiry) {
		delete(d.bans, ip)
		return nil
	}
	return &Denial{
		Status:     http.StatusTooManyRequests,
		Message:    "temporarily banned due to abuse",
		RetryAfter: ceilSeconds(expiry.Sub(now)),
	}
}

// CheckBannedPatterns rejects content matching a configured pattern.
func (d *SpamDetector) CheckBannedPatterns(texts ...string) *Denial {
	for _, text := range texts {
		for _, re := range d.patterns {
			if re.MatchString(text) {
				return &Denial{
					Status:  http.StatusBadRequest,
					Message: "content matches a banned pattern",
				}
			}
		}
	}
	return nil
}

// Score updates the IP's abuse score for one write and returns a denial when
// the score crosses the block or ban threshold.
func (d *SpamDetector) Score(ip string, content Content) *Denial {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	record := d.records[ip]
	if record == nil {
		record = &spamRecord{lastUpdate: now, contentHashes: make(map[string]int)}
		d.records[ip] = record
	}

	// Linear decay: one point per full minute since the last update. A score
	// that decays all the way to zero also resets duplicate-content memory,
	// so stale hashes cannot flag a reformed client.
	if minutes := int(now.Sub(record.lastUpdate) / time.Minute); minutes >= 1 {
		record.score = max(0, record.score-minutes)
		record.lastUpdate = now
		if record.score == 0 {
			clear(record.contentHashes)
		}
	}

	// Prune the burst window and record this write.
	kept := record.writeTimestamps[:0]
	for _, ts := range record.writeTimestamps {
		if now.Sub(ts) < d.window {
			kept = append(kept, ts)
		}
	}
	record.writeTimestamps = append(kept, now)

	if len(record.writeTimestamps) > 5 {
		record.score += 3
	}

	text := strings.TrimSpace(content.Title + " " + content.Body + " " + content.Description)
	if text != "" {
		hash := contentHash(text)
		record.contentHashes[hash]++
		if record.contentHashes[hash] >= 3 {
			record.score += 5
		}
	}

	fullText := content.Title + " " + content.Body
	if content.Title != "" && content.Title == strings.ToUpper(content.Title) && len(content.Title) > 10 {
		record.score += 3
	}
	if len(urlPattern.FindAllString(fullText, -1)) > 10 {
		record.score += 3
	}
	if text != "" && len(stripWhitespace(text)) < 5 {
		record.score++
	}

	record.lastUpdate = now

	if record.score >= d.banThreshold {
		d.bans[ip] = now.Add(d.banDuration)
		delete(d.records, ip)
		return &Denial{
			Status:     http.StatusTooManyRequests,
			Message:    "temporarily banned due to suspected automated abuse",
			RetryAfter: ceilSeconds(d.banDuration),
		}
	}
	if record.score >= d.blockThreshold {
		return &Denial{
			Status:  http.StatusTooManyRequests,
			Message: "slow down, suspected automated abuse",
		}
	}
	return nil
}

// Sweep drops stale records and expired bans.
func (d *SpamDetector) Sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for ip, record := range d.records {
		if now.Sub(record.lastUpdate) > 2*d.window {
			delete(d.records, ip)
		}
	}
	for ip, expiry := range d.bans {
		if now.After(expiry) {
			delete(d.bans, ip)
		}
	}
}

// contentHash is a cheap rolling hash over the first 200 characters. It only
// needs to detect exact resubmission, not resist collision attacks.
func contentHash(text string) string {
	sample := text
	if len(sample) > 200 {
		sample = sample[:200]
	}
	var h int32
	for _, c := range []byte(sample) {
		h = (h << 5) - h + int32(c)
	}
	return strconv.FormatInt(int64(h), 36)
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}
