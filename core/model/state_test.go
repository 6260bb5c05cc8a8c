package model_test

import (
	"sync"
	"testing"

	"github.com/quantself/moodlab/core/model"
)

func TestStateManagerLifecycle(t *testing.T) {
	sm := model.NewStateManager()

	if sm.IsFitted() {
		t.Error("new StateManager should not be fitted")
	}

	sm.SetFitted()
	sm.SetDimensions(7, 120)

	if !sm.IsFitted() {
		t.Error("StateManager should be fitted after SetFitted")
	}

	nf, ns := sm.Dimensions()
	if nf != 7 || ns != 120 {
		t.Errorf("Dimensions() = (%d, %d), want (7, 120)", nf, ns)
	}

	sm.Reset()
	if sm.IsFitted() {
		t.Error("StateManager should not be fitted after Reset")
	}
	nf, ns = sm.Dimensions()
	if nf != 0 || ns != 0 {
		t.Errorf("Reset should clear dimensions, got (%d, %d)", nf, ns)
	}
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	sm := model.NewStateManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sm.SetFitted()
			sm.SetDimensions(3, 10)
		}()
		go func() {
			defer wg.Done()
			_ = sm.IsFitted()
			_, _ = sm.Dimensions()
		}()
	}
	wg.Wait()

	if !sm.IsFitted() {
		t.Error("StateManager should be fitted after concurrent SetFitted calls")
	}
}
