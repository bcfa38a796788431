package preflight

import (
	"sftpsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the local checks for cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Download directory", cfg.Paths.LocalDownloadDir),
		CheckDirectoryAccess("Upload directory", cfg.Paths.LocalUploadDir),
		CheckQuarantineDir(cfg.Paths.QuarantineDir),
		CheckPrivateKey(cfg.Transfer.PrivateKey, cfg.Transfer.PrivateKeyPassphrase),
	}
	if !cfg.Transfer.InsecureIgnoreHostKey {
		results = append(results, CheckKnownHosts(cfg.Transfer.KnownHostsFile))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
