// Package jobs holds background work that runs beside the HTTP server.
//
// Jobs follow one shape: a constructor taking the dependency and an
// interval, Start to launch the loop, Stop to end it and wait, and RunOnce
// for tests or a manual trigger.
//
//	sweeper := jobs.NewSessionSweeper(memoryStore, 5*time.Minute)
//	sweeper.Start()
//	defer sweeper.Stop()
package jobs
