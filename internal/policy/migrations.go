package policy

import (
	"database/sql"

	"github.com/HerbHall/netmeter/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create policy_templates table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE policy_templates (
						id            TEXT PRIMARY KEY,
						name          TEXT NOT NULL,
						match_rule    INTEGER NOT NULL,
						subscriber_id TEXT NOT NULL DEFAULT '',
						ssid          TEXT NOT NULL DEFAULT '',
						metered       INTEGER NOT NULL,
						roaming       INTEGER NOT NULL,
						default_net   INTEGER NOT NULL,
						sub_type      INTEGER NOT NULL,
						oem_managed   INTEGER NOT NULL,
						sub_id_rule   INTEGER NOT NULL,
						created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						UNIQUE (match_rule, subscriber_id, ssid, metered, roaming,
							default_net, sub_type, oem_managed, sub_id_rule)
					)
				`)
				return err
			},
		},
	}
}
