package recordauth

import (
	"errors"
	"strings"
	"testing"
)

const sampleYAML = `
version: 1
tenant_id_format: both
engine:
  predicate_cache_ttl_ms: 500
  ristretto_num_counter: 65536
  ristretto_max_cost: 4194304
  ristretto_buffer: 64
record_types:
  contact:
    read: "@tenant-self-or-assigned"
    write: "@tenant-self-or-assigned"
  lead:
    read: "@tenant-manager-or-above"
    write: "@admin-only"
  announcement:
    read: "@public-read"
    write:
      $and:
        - tenant_id: "{{user.tenant_id}}"
        - user_condition:
            employee_role: manager
  "activity*":
    read: "@tenant-self-or-assigned"
    write: "@tenant-self-or-assigned"
`

func TestLoadYAMLAndBuildRegistry(t *testing.T) {
	cfg, err := NewConfigLoader().LoadYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if _, err := cfg.Grammar(); err != nil {
		t.Fatalf("grammar: %v", err)
	}
	reg, err := cfg.BuildRegistry()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	manager := Identity{Email: "m@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleManager, TenantID: "T1"}
	rr := mustResolve(t, reg.Rule("announcement", OpWrite), manager)
	if !rr.Evaluate(Record{"tenant_id": "T1"}) {
		t.Fatalf("inline yaml rule must permit manager in own tenant")
	}
	if rr.Evaluate(Record{"tenant_id": "T2"}) {
		t.Fatalf("inline yaml rule must deny other tenant")
	}

	employee := Identity{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"}
	viaPattern := mustResolve(t, reg.Rule("activity_call", OpRead), employee)
	if !viaPattern.Evaluate(Record{"tenant_id": "T1", "created_by": "a@x.com"}) {
		t.Fatalf("wildcard record type must pick up the pattern policy")
	}
}

func TestMalformedRuleFailsAtLoad(t *testing.T) {
	bad := strings.Replace(sampleYAML, "$and", "$nand", 1)
	cfg, err := NewConfigLoader().LoadYAML([]byte(bad))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if _, err := cfg.BuildRegistry(); !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("expected ErrMalformedRule at build time, got %v", err)
	}
}

func TestUnknownTemplateFailsAtLoad(t *testing.T) {
	bad := strings.Replace(sampleYAML, "@admin-only", "@allow-everything", 1)
	cfg, err := NewConfigLoader().LoadYAML([]byte(bad))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if _, err := cfg.BuildRegistry(); !errors.Is(err, ErrMalformedRule) {
		t.Fatalf("expected ErrMalformedRule for unknown template, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	cfg, err := NewConfigLoader().LoadYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	data, err := cfg.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	back, err := NewConfigLoader().LoadJSON(data)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if _, err := back.BuildRegistry(); err != nil {
		t.Fatalf("registry from round-tripped config: %v", err)
	}
	if back.TenantIDFormat != cfg.TenantIDFormat || back.Version != cfg.Version {
		t.Fatalf("round trip lost fields: %#v vs %#v", back, cfg)
	}
}

func TestUnknownTenantIDFormatRejected(t *testing.T) {
	cfg := &Config{TenantIDFormat: "base58"}
	if _, err := cfg.Grammar(); err == nil {
		t.Fatalf("expected error for unknown tenant_id_format")
	}
}
