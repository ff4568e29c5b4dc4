package config

import (
	"reflect"
	"sort"
	"strings"

	"hookrelay/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. Secrets (webhook URL, intake token) are
// reported only as set/unset.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Webhook, newCfg.Webhook) {
		changed = append(changed, "webhook")
		attrs = append(attrs,
			logx.Bool("webhook.url_set", strings.TrimSpace(newCfg.Webhook.URL) != ""),
			logx.String("webhook.label", newCfg.Webhook.Label),
			logx.String("webhook.environment", newCfg.Webhook.Environment),
			logx.Bool("webhook.disabled", newCfg.Webhook.Disabled),
			logx.String("webhook.batch_delay", strings.TrimSpace(newCfg.Webhook.BatchDelay)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Intake, newCfg.Intake) {
		changed = append(changed, "intake")
		attrs = append(attrs,
			logx.Bool("intake.enabled", newCfg.Intake.Enabled),
			logx.String("intake.address", strings.TrimSpace(newCfg.Intake.Address)),
			logx.Bool("intake.token_set", strings.TrimSpace(newCfg.Intake.Token) != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	oldJ, newJ := derefJournal(oldCfg.Journal), derefJournal(newCfg.Journal)
	if !reflect.DeepEqual(oldJ, newJ) {
		changed = append(changed, "journal")
		attrs = append(attrs,
			logx.String("journal.driver", strings.TrimSpace(newJ.Driver)),
			logx.Bool("journal.path_set", strings.TrimSpace(newJ.Path) != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Maintenance, newCfg.Maintenance) {
		changed = append(changed, "maintenance")
		attrs = append(attrs,
			logx.String("maintenance.flush_schedule", newCfg.Maintenance.FlushSchedule),
			logx.String("maintenance.prune_schedule", newCfg.Maintenance.PruneSchedule),
			logx.String("maintenance.prune_max_age", newCfg.Maintenance.PruneMaxAge),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}

func derefJournal(j *JournalConfig) JournalConfig {
	if j == nil {
		return JournalConfig{}
	}
	return *j
}
