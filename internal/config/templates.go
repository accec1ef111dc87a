package config

import (
	"fmt"
	"os"
)

func Template() string {
	return fileTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(fileTemplate), 0o600)
}

const fileTemplate = `host = "127.0.0.1"
port = 5000

connect_timeout = "5s"
read_timeout = "1s"
write_timeout = "5s"
disconnect_on_idle = false
no_delay = true
tokenized = false

max_payload_bytes = 16777216
max_buffer_bytes = 25165824
max_resync_bytes = 65536

backoff_initial = "500ms"
backoff_multiplier = 2.0
backoff_max = "5s"
backoff_jitter = false

# status_addr = "127.0.0.1:9090"
cors_origins = ["http://localhost:3000"]

log_level = "info"
output = "text"
`
