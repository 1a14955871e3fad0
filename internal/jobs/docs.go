// Package jobs provides scheduled background tasks for the order service.
//
// Jobs use github.com/robfig/cron/v3 with a seconds field.
//
// # Available Jobs
//
// ActiveOrderAuditJob scans all active orders for pairs the lifecycle engine should
// have rejected, such as two active drug orders for the same drug in the same care
// setting. Saves are serialized per patient, but without a shared lock two service
// instances can still race, and the audit is how such races surface. Findings are
// logged and counted; nothing is changed automatically.
//
// # Usage
//
//	audit := jobs.NewActiveOrderAuditJob(conflictsHandler, recorder, cfg.AuditCronSpec, logger)
//	manager := jobs.NewJobManager(audit)
//	if err := manager.StartAll(); err != nil {
//		return err
//	}
//	defer manager.StopAll()
package jobs
