package agent

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/ports"
)

// recorder collects callbacks from one spawned process
type recorder struct {
	exits []domain.ExitStatus
	lines []string
	mu    sync.Mutex
}

func (r *recorder) onOutput(line []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, string(line))
}

func (r *recorder) onExit(status domain.ExitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exits = append(r.exits, status)
}

func (r *recorder) snapshot() ([]string, []domain.ExitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...), append([]domain.ExitStatus(nil), r.exits...)
}

func shellSpec(sessionID, script string, rec *recorder) ports.SpawnSpec {
	return ports.SpawnSpec{
		Args:      []string{"-c", script},
		Command:   "/bin/sh",
		SessionID: sessionID,
		OnExit:    rec.onExit,
		OnOutput:  rec.onOutput,
	}
}

func waitForExit(t *testing.T, rec *recorder) domain.ExitStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		_, exits := rec.snapshot()
		return len(exits) > 0
	}, 5*time.Second, 10*time.Millisecond)
	_, exits := rec.snapshot()
	return exits[0]
}

func TestSpawn_StreamsOutputAndExitsOnce(t *testing.T) {
	s := NewSupervisor(time.Second)
	rec := &recorder{}

	handle, err := s.Spawn(context.Background(), shellSpec("s1", `echo one; printf 'two\nthree'; exit 0`, rec))
	require.NoError(t, err)
	assert.Positive(t, handle.PID)

	status := waitForExit(t, rec)
	assert.True(t, status.Clean())

	time.Sleep(50 * time.Millisecond)
	lines, exits := rec.snapshot()
	assert.Equal(t, []string{"one", "two", "three"}, lines, "partial last line is flushed")
	assert.Len(t, exits, 1)
	assert.False(t, s.IsRunning("s1"))
}

func TestSpawn_AlreadyRunning(t *testing.T) {
	s := NewSupervisor(time.Second)
	rec := &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("s1", `sleep 5`, rec))
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop(context.Background(), "s1") })

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Spawn(context.Background(), shellSpec("s1", `true`, &recorder{}))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrAlreadyRunning))
	}
}

func TestSpawn_MissingBinary(t *testing.T) {
	s := NewSupervisor(time.Second)

	_, err := s.Spawn(context.Background(), ports.SpawnSpec{
		Command:   filepath.Join(t.TempDir(), "no-such-agent"),
		SessionID: "s1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProcess))
	assert.False(t, s.IsRunning("s1"))

	// The failed start does not keep the session reserved
	rec := &recorder{}
	_, err = s.Spawn(context.Background(), shellSpec("s1", `true`, rec))
	require.NoError(t, err)
	waitForExit(t, rec)
}

func TestSpawn_ConcurrentSpawnsStartOneProcess(t *testing.T) {
	s := NewSupervisor(time.Second)
	t.Cleanup(func() { s.StopAll(context.Background()) })

	start := make(chan struct{})
	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = s.Spawn(context.Background(), shellSpec("s1", `sleep 5`, &recorder{}))
		}(i)
	}
	close(start)
	wg.Wait()

	started := 0
	for _, err := range errs {
		if err == nil {
			started++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrAlreadyRunning), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, started)
	assert.True(t, s.IsRunning("s1"))
}

func TestSpawn_NonZeroExitKeepsStderrTail(t *testing.T) {
	s := NewSupervisor(time.Second)
	rec := &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("s1", `echo "boom" >&2; exit 3`, rec))
	require.NoError(t, err)

	status := waitForExit(t, rec)
	assert.Equal(t, 3, status.Code)
	assert.False(t, status.Requested)
	assert.Equal(t, "boom", status.StderrTail)
}

func TestStop_Graceful(t *testing.T) {
	s := NewSupervisor(2 * time.Second)
	rec := &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("s1", `trap 'exit 0' TERM; while true; do sleep 0.1; done`, rec))
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	result, err := s.Stop(context.Background(), "s1")

	require.NoError(t, err)
	assert.True(t, result.Graceful)
	status := waitForExit(t, rec)
	assert.True(t, status.Requested)
	assert.False(t, s.IsRunning("s1"))
}

func TestStop_ForcedAfterGracePeriod(t *testing.T) {
	s := NewSupervisor(200 * time.Millisecond)
	rec := &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("s1", `trap '' TERM; while true; do sleep 0.1; done`, rec))
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	result, err := s.Stop(context.Background(), "s1")

	require.NoError(t, err)
	assert.False(t, result.Graceful)
	assert.Less(t, time.Since(start), 5*time.Second)
	status := waitForExit(t, rec)
	assert.Equal(t, "SIGKILL", status.Signal)
}

func TestStop_ReportsProcessThatIsNeverReaped(t *testing.T) {
	setsid, err := exec.LookPath("setsid")
	if err != nil {
		t.Skip("setsid not available")
	}
	s := NewSupervisor(100 * time.Millisecond)
	s.reapTimeout = 200 * time.Millisecond
	rec := &recorder{}

	// The setsid child leaves the process group but keeps stdout open, so the
	// agent cannot be reaped until it exits
	script := setsid + ` sleep 2 & trap '' TERM; echo ready; while true; do sleep 0.1; done`
	_, err = s.Spawn(context.Background(), shellSpec("s1", script, rec))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		lines, _ := rec.snapshot()
		return len(lines) > 0
	}, 2*time.Second, 10*time.Millisecond)

	result, err := s.Stop(context.Background(), "s1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProcess))
	assert.False(t, result.Graceful)
	assert.True(t, s.IsRunning("s1"), "an unreaped process stays tracked")

	status := waitForExit(t, rec)
	assert.True(t, status.Requested)
	assert.False(t, s.IsRunning("s1"))
}

func TestStop_DoesNotAffectOtherSessions(t *testing.T) {
	s := NewSupervisor(time.Second)
	a, b := &recorder{}, &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("a", `sleep 5`, a))
	require.NoError(t, err)
	_, err = s.Spawn(context.Background(), shellSpec("b", `sleep 5`, b))
	require.NoError(t, err)
	t.Cleanup(func() { s.StopAll(context.Background()) })

	_, err = s.Stop(context.Background(), "a")
	require.NoError(t, err)

	waitForExit(t, a)
	assert.True(t, s.IsRunning("b"))
	_, exits := b.snapshot()
	assert.Empty(t, exits)
}

func TestSendInput(t *testing.T) {
	s := NewSupervisor(time.Second)
	rec := &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("s1", `read line; echo "got $line"`, rec))
	require.NoError(t, err)

	require.NoError(t, s.SendInput("s1", []byte("hello\n")))

	waitForExit(t, rec)
	lines, _ := rec.snapshot()
	assert.Equal(t, []string{"got hello"}, lines)

	err = s.SendInput("s1", []byte("late\n"))
	assert.True(t, errors.Is(err, domain.ErrNotRunning))
}

func TestCloseInput_LetsAgentFinish(t *testing.T) {
	s := NewSupervisor(time.Second)
	rec := &recorder{}

	_, err := s.Spawn(context.Background(), shellSpec("s1", `cat`, rec))
	require.NoError(t, err)

	require.NoError(t, s.SendInput("s1", []byte("echoed\n")))
	require.NoError(t, s.CloseInput("s1"))
	assert.True(t, errors.Is(s.SendInput("s1", []byte("x\n")), domain.ErrNotRunning))

	status := waitForExit(t, rec)
	assert.True(t, status.Clean())
	lines, _ := rec.snapshot()
	assert.Equal(t, []string{"echoed"}, lines)
}

func TestStop_NotRunning(t *testing.T) {
	s := NewSupervisor(time.Second)

	result, err := s.Stop(context.Background(), "nope")

	assert.True(t, errors.Is(err, domain.ErrNotRunning))
	assert.True(t, result.Graceful)
}

func TestSpawn_RunsInWorkingDirWithEnv(t *testing.T) {
	s := NewSupervisor(time.Second)
	rec := &recorder{}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("x"), 0644))

	spec := shellSpec("s1", `ls; echo "$GROVE_TEST_VALUE"`, rec)
	spec.Dir = dir
	spec.Env = []string{"GROVE_TEST_VALUE=42"}
	_, err := s.Spawn(context.Background(), spec)
	require.NoError(t, err)

	waitForExit(t, rec)
	lines, _ := rec.snapshot()
	assert.Equal(t, []string{"marker", "42"}, lines)
}
