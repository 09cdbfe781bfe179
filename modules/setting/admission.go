// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import "time"

// RateLimit is a request ceiling over a fixed window.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Admission holds abuse-protection settings for the anonymous write path.
var Admission = struct {
	RateRead     RateLimit
	RateWrite    RateLimit
	RateGitRead  RateLimit
	RateGitWrite RateLimit

	MaxConcurrentGitOps int
	MaxReposPerHour     int

	SpamBlockThreshold int
	SpamBanThreshold   int
	SpamBanDuration    time.Duration
	SpamWindow         time.Duration

	BannedContentPatterns []string
}{
	RateRead:     RateLimit{Requests: 120, Window: time.Minute},
	RateWrite:    RateLimit{Requests: 30, Window: time.Minute},
	RateGitRead:  RateLimit{Requests: 60, Window: time.Minute},
	RateGitWrite: RateLimit{Requests: 30, Window: time.Minute},

	MaxConcurrentGitOps: 5,
	MaxReposPerHour:     10,

	SpamBlockThreshold: 10,
	SpamBanThreshold:   20,
	SpamBanDuration:    15 * time.Minute,
	SpamWindow:         30 * time.Second,
}

func loadAdmissionFrom(rootCfg ConfigProvider) {
	sec := rootCfg.Section("admission")
	Admission.RateRead = RateLimit{
		Requests: sec.Key("RATE_READ").MustInt(120),
		Window:   sec.Key("RATE_READ_WINDOW").MustDuration(time.Minute),
	}
	Admission.RateWrite = RateLimit{
		Requests: sec.Key("RATE_WRITE").MustInt(30),
		Window:   sec.Key("RATE_WRITE_WINDOW").MustDuration(time.Minute),
	}
	Admission.RateGitRead = RateLimit{
		Requests: sec.Key("RATE_GIT_READ").MustInt(60),
		Window:   sec.Key("RATE_GIT_READ_WINDOW").MustDuration(time.Minute),
	}
	Admission.RateGitWrite = RateLimit{
		Requests: sec.Key("RATE_GIT_WRITE").MustInt(30),
		Window:   sec.Key("RATE_GIT_WRITE_WINDOW").MustDuration(time.Minute),
	}
	Admission.MaxConcurrentGitOps = sec.Key("MAX_CONCURRENT_GIT_OPS").MustInt(5)
	Admission.MaxReposPerHour = sec.Key("MAX_REPOS_PER_IP_PER_HOUR").MustInt(10)
	Admission.SpamBlockThreshold = sec.Key("SPAM_BLOCK_THRESHOLD").MustInt(10)
	Admission.SpamBanThreshold = sec.Key("SPAM_BAN_THRESHOLD").MustInt(20)
	Admission.SpamBanDuration = sec.Key("SPAM_BAN_DURATION").MustDuration(15 * time.Minute)
	Admission.SpamWindow = sec.Key("SPAM_WINDOW").MustDuration(30 * time.Second)
	Admission.BannedContentPatterns = sec.Key("BANNED_CONTENT_PATTERNS").Strings(",")
}
