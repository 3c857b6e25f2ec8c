package config

import (
	"fmt"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate fills defaults and returns a normalized copy plus
// everything a careful operator should know before the first run.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 38510
	}
	if out.Run.MaxConcurrentSources <= 0 {
		out.Run.MaxConcurrentSources = 4
	}
	if out.Run.RetentionDays <= 0 {
		out.Run.RetentionDays = 90
	}
	if out.Fetch.TimeoutSeconds <= 0 {
		out.Fetch.TimeoutSeconds = 15
	}
	if out.Fetch.MaxAttempts <= 0 {
		out.Fetch.MaxAttempts = 3
	}
	if out.Fetch.HostReqPerSec <= 0 {
		out.Fetch.HostReqPerSec = 1.0
	}
	if out.Fetch.HostBurst <= 0 {
		out.Fetch.HostBurst = 2
	}
	if len(out.Dedup.IdentityFields) == 0 {
		out.Dedup.IdentityFields = DefaultIdentityFields()
	}

	for i := range out.Sources {
		s := &out.Sources[i]
		if s.MaxPages <= 0 {
			s.MaxPages = 3
		}
		if s.MaxConsecutiveFailures <= 0 {
			s.MaxConsecutiveFailures = 3
		}
		if s.DelayMinMs < 0 {
			s.DelayMinMs = 0
		}
		if s.DelayMaxMs < s.DelayMinMs {
			s.DelayMaxMs = s.DelayMinMs
		}
		if s.Strategy == StrategyRendered && s.WaitSelector == "" && s.SettleMs <= 0 {
			s.SettleMs = 2500
		}
	}

	// ---- Validation ----

	if len(out.Sources) == 0 {
		res.addErr("no sources configured")
	}

	seen := map[string]bool{}
	for i, s := range out.Sources {
		if strings.TrimSpace(s.ID) == "" {
			res.addErr("sources[%d].id is required", i)
			continue
		}
		if seen[s.ID] {
			res.addErr("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true

		if strings.TrimSpace(s.BaseURL) == "" {
			res.addErr("sources[%s].base_url is required", s.ID)
		} else if !strings.Contains(s.BaseURL, "%d") {
			res.addWarn("sources[%s].base_url has no %%d page placeholder; every page fetches the same URL", s.ID)
		}
		switch s.Strategy {
		case StrategyStatic, StrategyRendered:
		default:
			res.addErr("sources[%s].strategy must be %q or %q (got %q)", s.ID, StrategyStatic, StrategyRendered, s.Strategy)
		}
		if s.DelayMinMs == 0 && s.DelayMaxMs == 0 {
			res.addWarn("sources[%s] has no inter-request delay; the portal may rate-limit you", s.ID)
		}
	}

	if out.Schedule.DailyAt != "" {
		if _, err := time.Parse("15:04", out.Schedule.DailyAt); err != nil {
			res.addErr("schedule.daily_at must be HH:MM (got %q)", out.Schedule.DailyAt)
		}
	} else if out.Schedule.Every != "" {
		d, err := time.ParseDuration(out.Schedule.Every)
		if err != nil {
			res.addErr("schedule.every is not a duration: %v", err)
		} else if d < time.Minute {
			res.addWarn("schedule.every of %s is very aggressive for portal scraping", d)
		}
	}

	for _, f := range out.Dedup.IdentityFields {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "source", "title", "company", "location", "url":
		default:
			res.addErr("dedup.identity_fields: unknown field %q", f)
		}
	}

	if out.Report.Enabled {
		if strings.TrimSpace(out.Report.SMTPHost) == "" {
			res.addErr("report.smtp_host is required when report.enabled=true")
		}
		if out.Report.SMTPPort == 0 {
			res.addErr("report.smtp_port is required when report.enabled=true")
		}
		if strings.TrimSpace(out.Report.From) == "" {
			res.addErr("report.from is required when report.enabled=true")
		}
		if len(out.Report.Recipients) == 0 {
			res.addWarn("report.enabled=true but recipients is empty; reports go nowhere")
		}
	}

	return out, res
}
