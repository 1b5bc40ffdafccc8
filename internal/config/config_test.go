package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/pheromones/internal/grid"
)

func TestDefault(t *testing.T) {
	config := Default()

	sim := config.Simulation
	if sim.Width != 64 || sim.Height != 64 {
		t.Errorf("expected 64x64, got %dx%d", sim.Width, sim.Height)
	}
	if sim.Agents != 100 {
		t.Errorf("expected 100 agents, got %d", sim.Agents)
	}
	if sim.Connectivity != 4 {
		t.Errorf("expected connectivity 4, got %d", sim.Connectivity)
	}
	if sim.Seed != 0 {
		t.Errorf("expected seed 0, got %d", sim.Seed)
	}

	if config.Server.Addr != "localhost:8080" {
		t.Errorf("expected Server.Addr 'localhost:8080', got '%s'", config.Server.Addr)
	}
	if config.Server.TickInterval != 16*time.Millisecond {
		t.Errorf("expected TickInterval 16ms, got %v", config.Server.TickInterval)
	}
	if config.Store.Dir != "" {
		t.Errorf("expected empty Store.Dir, got '%s'", config.Store.Dir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  width: 32
  height: 16
  agents: 250
  connectivity: 8
  evaporation: 0.05
  seed: 1234

server:
  addr: 127.0.0.1:9000
  tick_interval: 50ms

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	sim := config.Simulation
	if sim.Width != 32 || sim.Height != 16 || sim.Agents != 250 {
		t.Errorf("unexpected simulation: %+v", sim)
	}
	if sim.Connectivity != 8 || sim.Evaporation != 0.05 || sim.Seed != 1234 {
		t.Errorf("unexpected simulation: %+v", sim)
	}
	// Unset fields keep defaults.
	if sim.Alpha != 1.0 || sim.StepBudget != 512 {
		t.Errorf("expected defaults for unset fields, got alpha=%v budget=%d", sim.Alpha, sim.StepBudget)
	}
	if config.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected Server.Addr '127.0.0.1:9000', got '%s'", config.Server.Addr)
	}
	if config.Server.TickInterval != 50*time.Millisecond {
		t.Errorf("expected TickInterval 50ms, got %v", config.Server.TickInterval)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_ExpandsDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("PHEROMONES_TEST_ROOT", tmpDir)
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("store:\n  dir: ${PHEROMONES_TEST_ROOT}/data\n"), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if want := tmpDir + "/data"; config.Store.Dir != want {
		t.Errorf("expected Store.Dir %q, got %q", want, config.Store.Dir)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("simulation: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromFile(bad)
	if err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoad_FromHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load with no file failed: %v", err)
	}
	if config.Simulation.Width != 64 {
		t.Errorf("expected defaults without a file, got width %d", config.Simulation.Width)
	}

	dir := filepath.Join(home, ".pheromones")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("simulation:\n  agents: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}
	config, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Simulation.Agents != 7 {
		t.Errorf("expected 7 agents from file, got %d", config.Simulation.Agents)
	}
}

func TestEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	t.Setenv("PHEROMONES_WIDTH", "20")
	t.Setenv("PHEROMONES_AGENTS", "9")
	t.Setenv("PHEROMONES_EVAPORATION", "0.3")
	t.Setenv("PHEROMONES_SEED", "99")
	t.Setenv("PHEROMONES_SERVER_ADDR", "localhost:0")
	t.Setenv("PHEROMONES_TICK_INTERVAL", "1s")
	t.Setenv("PHEROMONES_DATA_DIR", "/tmp/ph")
	t.Setenv("PHEROMONES_LOG_LEVEL", "trace")
	t.Setenv("PHEROMONES_HEIGHT", "not-a-number")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Simulation.Width != 20 || config.Simulation.Agents != 9 {
		t.Errorf("int overrides not applied: %+v", config.Simulation)
	}
	if config.Simulation.Height != 64 {
		t.Errorf("malformed override should be ignored, got height %d", config.Simulation.Height)
	}
	if config.Simulation.Evaporation != 0.3 || config.Simulation.Seed != 99 {
		t.Errorf("float/seed overrides not applied: %+v", config.Simulation)
	}
	if config.Server.Addr != "localhost:0" || config.Server.TickInterval != time.Second {
		t.Errorf("server overrides not applied: %+v", config.Server)
	}
	if config.Store.Dir != "/tmp/ph" {
		t.Errorf("expected Store.Dir '/tmp/ph', got '%s'", config.Store.Dir)
	}
	if config.Logging.Level != "trace" {
		t.Errorf("expected Logging.Level 'trace', got '%s'", config.Logging.Level)
	}
}

func TestLoadPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  memory: 3\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PHEROMONES_AGENTS", "11")

	config, err := LoadPath(path)
	if err != nil {
		t.Fatalf("LoadPath failed: %v", err)
	}
	if config.Simulation.Memory != 3 || config.Simulation.Agents != 11 {
		t.Errorf("expected file and env values, got %+v", config.Simulation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*PheromonesConfig)
		wantErr bool
	}{
		{"defaults", func(c *PheromonesConfig) {}, false},
		{"eight connectivity", func(c *PheromonesConfig) { c.Simulation.Connectivity = 8 }, false},
		{"empty log level", func(c *PheromonesConfig) { c.Logging.Level = "" }, false},
		{"zero width", func(c *PheromonesConfig) { c.Simulation.Width = 0 }, true},
		{"single cell", func(c *PheromonesConfig) { c.Simulation.Width, c.Simulation.Height = 1, 1 }, true},
		{"widest frameable arena", func(c *PheromonesConfig) { c.Simulation.Width, c.Simulation.Height = 65535, 1 }, false},
		{"width over frame limit", func(c *PheromonesConfig) { c.Simulation.Width, c.Simulation.Height = 70000, 1 }, true},
		{"too many cells", func(c *PheromonesConfig) { c.Simulation.Width, c.Simulation.Height = 4096, 4096 }, true},
		{"evaporation zero", func(c *PheromonesConfig) { c.Simulation.Evaporation = 0 }, true},
		{"evaporation one", func(c *PheromonesConfig) { c.Simulation.Evaporation = 1 }, true},
		{"connectivity six", func(c *PheromonesConfig) { c.Simulation.Connectivity = 6 }, true},
		{"negative alpha", func(c *PheromonesConfig) { c.Simulation.Alpha = -1 }, true},
		{"zero epsilon", func(c *PheromonesConfig) { c.Simulation.Epsilon = 0 }, true},
		{"zero tick interval", func(c *PheromonesConfig) { c.Server.TickInterval = 0 }, true},
		{"bad log level", func(c *PheromonesConfig) { c.Logging.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToUniverse(t *testing.T) {
	config := Default()
	config.Simulation.Connectivity = 8
	config.Simulation.Workers = 4
	config.Simulation.Seed = 5

	u := config.Simulation.ToUniverse()
	if u.Connectivity != grid.Eight || u.Workers != 4 || u.Seed != 5 {
		t.Errorf("ToUniverse() = %+v", u)
	}
	if u.Width != 64 || u.Agents != 100 || u.Evaporation != config.Simulation.Evaporation {
		t.Errorf("ToUniverse() dropped fields: %+v", u)
	}
	if err := u.Validate(); err != nil {
		t.Errorf("converted defaults should validate: %v", err)
	}
}

func TestGetSet(t *testing.T) {
	config := Default()

	for _, k := range Keys() {
		if _, ok := config.Get(k); !ok {
			t.Errorf("Get(%q) not found", k)
		}
	}
	if _, ok := config.Get("nope.nothing"); ok {
		t.Error("Get of unknown key should fail")
	}

	if err := config.Set("simulation.agents", "42"); err != nil {
		t.Fatalf("Set agents: %v", err)
	}
	if v, _ := config.Get("simulation.agents"); v != 42 {
		t.Errorf("agents = %v, want 42", v)
	}
	if err := config.Set("server.tick_interval", "100ms"); err != nil {
		t.Fatalf("Set tick_interval: %v", err)
	}
	if v, _ := config.Get("server.tick_interval"); v != "100ms" {
		t.Errorf("tick_interval = %v, want 100ms", v)
	}

	if err := config.Set("simulation.evaporation", "2"); err == nil {
		t.Error("Set should reject an invalid value")
	}
	if config.Simulation.Evaporation != Default().Simulation.Evaporation {
		t.Errorf("failed Set changed evaporation to %v", config.Simulation.Evaporation)
	}
	if err := config.Set("simulation.width", "wide"); err == nil {
		t.Error("Set should reject unparsable input")
	}
	if err := config.Set("unknown", "1"); err == nil {
		t.Error("Set should reject unknown keys")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", FileName)
	config := Default()
	config.Simulation.Agents = 3
	config.Server.TickInterval = 250 * time.Millisecond

	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file perms = %o, want 0600", perm)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Simulation.Agents != 3 || loaded.Server.TickInterval != 250*time.Millisecond {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
