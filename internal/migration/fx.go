package migration

import (
	auditdomain "github.com/aquilabs/waterworks/internal/audit/domain"
	billdomain "github.com/aquilabs/waterworks/internal/bill/domain"
	"github.com/aquilabs/waterworks/internal/config"
	customerdomain "github.com/aquilabs/waterworks/internal/customer/domain"
	ledgerdomain "github.com/aquilabs/waterworks/internal/ledger/domain"
	ratetabledomain "github.com/aquilabs/waterworks/internal/ratetable/domain"
	settlementdomain "github.com/aquilabs/waterworks/internal/settlement/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The versioned SQL is written for postgres. mysql and sqlite are
			// dev and test conveniences; gorm derives their schema.
			return conn.AutoMigrate(
				&ratetabledomain.RateClass{},
				&customerdomain.Customer{},
				&billdomain.Bill{},
				&settlementdomain.Settlement{},
				&settlementdomain.SettlementLine{},
				&ledgerdomain.LedgerAccount{},
				&ledgerdomain.LedgerEntry{},
				&ledgerdomain.LedgerEntryLine{},
				&auditdomain.AuditLogEntry{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
