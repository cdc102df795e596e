// Package staging manages the per-run scratch workspace.
//
// Each pipeline run owns a session directory under the configured work_dir:
//
//	<work_dir>/session-<uuid>/
//	  .lock             flock held for the lifetime of the run
//	  frames_raw/       extracted PNG frames
//	  frames_upscaled/  upscaled PNG frames, same names as frames_raw
//	  audio.mka         copied audio stream (absent or empty when none)
//	  <output name>     assembled video before it is published
//
// Stale-session cleanup skips any session whose lock is held, so a cleanup
// started from another terminal never removes a live run.
package staging
