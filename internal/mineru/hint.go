package mineru

import (
	"os"
	"strconv"
)

// EnvBatchSizeHint is read by the MinerU inference layer to decide how many
// pages it groups per inference call.
const EnvBatchSizeHint = "MINERU_MIN_BATCH_INFERENCE_SIZE"

// SetBatchSizeHint writes the batch-size hint into the process environment.
// The value is process-wide and is overwritten, never reset, by later calls;
// callers must not invoke it concurrently with other environment writers.
func SetBatchSizeHint(batchSize int) error {
	return os.Setenv(EnvBatchSizeHint, strconv.Itoa(batchSize))
}

// batchSizeEnv returns the hint as an explicit environment entry for child
// processes.
func batchSizeEnv(batchSize int) []string {
	if batchSize <= 0 {
		return nil
	}
	return []string{EnvBatchSizeHint + "=" + strconv.Itoa(batchSize)}
}
