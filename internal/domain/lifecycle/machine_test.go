package lifecycle

import (
	"errors"
	"testing"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

var (
	reviewer = entity.Actor{ID: "rev-1", Reviewer: true}
	admin    = entity.Actor{ID: "adm-1", Reviewer: true, Admin: true}
	uploader = entity.Actor{ID: "usr-1"}
)

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status   entity.Status
		expected bool
	}{
		{entity.StatusUploaded, false},
		{entity.StatusUnderReview, false},
		{entity.StatusApproved, false},
		{entity.StatusRejected, true},
		{entity.StatusPaid, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := IsTerminal(tt.status); got != tt.expected {
				t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}

func TestTriggerFor(t *testing.T) {
	tests := []struct {
		target  entity.Status
		trigger Trigger
		ok      bool
	}{
		{entity.StatusUnderReview, TriggerStartReview, true},
		{entity.StatusApproved, TriggerApprove, true},
		{entity.StatusRejected, TriggerReject, true},
		{entity.StatusPaid, TriggerMarkPaid, true},
		{entity.StatusUploaded, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			trigger, ok := TriggerFor(tt.target)
			if ok != tt.ok || trigger != tt.trigger {
				t.Errorf("TriggerFor(%s) = (%v, %v), want (%v, %v)", tt.target, trigger, ok, tt.trigger, tt.ok)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidStatus(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid status")
		}
	}()
	NewBuilder().Configure(entity.Status("bogus"))
}

func TestBuilder_BuildPanicsOnInvalidInitialStatus(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial status")
		}
	}()
	NewBuilder().Build(entity.Status("bogus"))
}

func TestMachine_Fire_GuardedTransition(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUploaded)

	if err := m.Fire(reviewer, TriggerStartReview); err != nil {
		t.Fatalf("Fire(StartReview) failed: %v", err)
	}
	if m.Status() != entity.StatusUnderReview {
		t.Errorf("Status = %v, want %v", m.Status(), entity.StatusUnderReview)
	}
}

func TestMachine_Fire_PermissionDenied(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUploaded)

	err := m.Fire(uploader, TriggerApprove)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Fire() error = %v, want ErrPermissionDenied", err)
	}
	if m.Status() != entity.StatusUploaded {
		t.Errorf("status changed after denied transition: %v", m.Status())
	}
}

func TestMachine_Fire_InvalidTransition(t *testing.T) {
	tests := []struct {
		name    string
		initial entity.Status
		trigger Trigger
	}{
		{"rejected to approved", entity.StatusRejected, TriggerApprove},
		{"paid to rejected", entity.StatusPaid, TriggerReject},
		{"approved to under_review", entity.StatusApproved, TriggerStartReview},
		{"uploaded to paid", entity.StatusUploaded, TriggerMarkPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildInvoiceStateMachine(tt.initial)
			err := m.Fire(admin, tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("Fire() error = %v, want ErrInvalidTransition", err)
			}
			if m.Status() != tt.initial {
				t.Errorf("status changed after invalid transition: %v", m.Status())
			}
		})
	}
}

func TestMachine_DirectApprovalSkipsReview(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUploaded)

	if err := m.Fire(reviewer, TriggerApprove); err != nil {
		t.Fatalf("direct approve from uploaded failed: %v", err)
	}
	if m.Status() != entity.StatusApproved {
		t.Errorf("Status = %v, want %v", m.Status(), entity.StatusApproved)
	}
}

func TestMachine_MarkPaidRequiresAdmin(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusApproved)

	if err := m.Fire(reviewer, TriggerMarkPaid); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("reviewer MarkPaid error = %v, want ErrPermissionDenied", err)
	}

	if err := m.Fire(admin, TriggerMarkPaid); err != nil {
		t.Fatalf("admin MarkPaid failed: %v", err)
	}
	if m.Status() != entity.StatusPaid {
		t.Errorf("Status = %v, want %v", m.Status(), entity.StatusPaid)
	}
	if !IsTerminal(m.Status()) {
		t.Error("paid should be terminal")
	}
}

func TestMachine_FullApprovalPath(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUploaded)

	steps := []struct {
		actor    entity.Actor
		trigger  Trigger
		expected entity.Status
	}{
		{reviewer, TriggerStartReview, entity.StatusUnderReview},
		{reviewer, TriggerApprove, entity.StatusApproved},
		{admin, TriggerMarkPaid, entity.StatusPaid},
	}

	for i, step := range steps {
		if err := m.Fire(step.actor, step.trigger); err != nil {
			t.Fatalf("step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if m.Status() != step.expected {
			t.Fatalf("step %d: Status = %v, want %v", i, m.Status(), step.expected)
		}
	}

	if triggers := m.PermittedTriggers(admin); len(triggers) != 0 {
		t.Errorf("terminal status should permit 0 triggers, got %d", len(triggers))
	}
}

func TestMachine_RejectionIsTerminal(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUnderReview)

	if err := m.Fire(reviewer, TriggerReject); err != nil {
		t.Fatalf("Fire(Reject) failed: %v", err)
	}
	if !IsTerminal(m.Status()) {
		t.Error("rejected should be terminal")
	}

	if err := m.Fire(admin, TriggerApprove); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve after reject error = %v, want ErrInvalidTransition", err)
	}
}

func TestMachine_PermittedTriggersRespectCapabilities(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUploaded)

	if got := m.PermittedTriggers(uploader); len(got) != 0 {
		t.Errorf("uploader PermittedTriggers = %v, want none", got)
	}
	if got := m.PermittedTriggers(reviewer); len(got) != 3 {
		t.Errorf("reviewer PermittedTriggers = %v, want 3", got)
	}
}

func TestMachine_CanFire(t *testing.T) {
	m := BuildInvoiceStateMachine(entity.StatusUploaded)

	if !m.CanFire(TriggerApprove) {
		t.Error("CanFire(Approve) should be true from uploaded")
	}
	if m.CanFire(TriggerMarkPaid) {
		t.Error("CanFire(MarkPaid) should be false from uploaded")
	}
}

func TestMachine_BuildersProduceIndependentMachines(t *testing.T) {
	m1 := BuildInvoiceStateMachine(entity.StatusUploaded)
	m2 := BuildInvoiceStateMachine(entity.StatusUploaded)

	if err := m1.Fire(reviewer, TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.Status() != entity.StatusUploaded {
		t.Errorf("m2 status = %v, machines should be independent", m2.Status())
	}
}
