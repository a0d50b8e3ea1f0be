package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dealflow_backend/internal/deals/automation"

	. "github.com/smartystreets/goconvey/convey"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given the policy loader", t, func() {
		Convey("When no file is configured", func() {
			p, err := Load("")

			Convey("Then the compiled defaults are used", func() {
				So(err, ShouldBeNil)
				So(p.Thresholds.Hot, ShouldEqual, 80)
				So(p.Thresholds.Warm, ShouldEqual, 50)
				So(p.Automation.Cooldown, ShouldEqual, 4*time.Hour)
				So(p.Automation.Rules, ShouldHaveLength, 3)
				So(p.Lifecycle.EngagedFloor, ShouldEqual, 20)
			})
		})

		Convey("When a file overrides scalars", func() {
			path := writePolicy(t, `
thresholds:
  hot: 75
automation:
  cooldown: 6h
weights:
  interaction:
    like: 4
`)
			p, err := Load(path)

			Convey("Then only those values change", func() {
				So(err, ShouldBeNil)
				So(p.Thresholds.Hot, ShouldEqual, 75)
				So(p.Thresholds.Warm, ShouldEqual, 50)
				So(p.Automation.Cooldown, ShouldEqual, 6*time.Hour)
				So(p.Weights.Interaction.Like, ShouldEqual, 4)
				So(p.Weights.Interaction.Consider, ShouldEqual, 2)
				So(p.Automation.Rules, ShouldHaveLength, 3)
			})
		})

		Convey("When a file replaces the rule table", func() {
			path := writePolicy(t, `
automation:
  rules:
    - kind: hot_lead
      min_score: 70
      max_score: 101
      task_type: immediate_outreach
      priority: urgent
      due_in: 1h
      title: "Call {deal}"
`)
			p, err := Load(path)

			Convey("Then the table is replaced, not merged", func() {
				So(err, ShouldBeNil)
				So(p.Automation.Rules, ShouldHaveLength, 1)
				So(p.Automation.Rules[0].Kind, ShouldEqual, automation.KindHotLead)
				So(p.Automation.Rules[0].DueIn, ShouldEqual, time.Hour)
			})
		})

		Convey("When an environment variable overrides a value", func() {
			t.Setenv("DEALFLOW_POLICY_LIFECYCLE__ENGAGED_FLOOR", "30")
			p, err := Load("")

			Convey("Then it wins over the defaults", func() {
				So(err, ShouldBeNil)
				So(p.Lifecycle.EngagedFloor, ShouldEqual, 30)
			})
		})

		Convey("When the thresholds are inverted", func() {
			path := writePolicy(t, "thresholds:\n  hot: 40\n  warm: 60\n")
			_, err := Load(path)

			Convey("Then loading fails validation", func() {
				So(errors.Is(err, ErrInvalid), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
