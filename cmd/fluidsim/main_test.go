package main

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/config"
)

func sceneCmd(t *testing.T, name string) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	t.Cleanup(func() { preset, configFile = "", "" })
	cmd := &cobra.Command{Use: name}
	addSceneFlags(cmd)
	return cmd
}

func TestNewLogger(t *testing.T) {
	g := NewWithT(t)

	l, err := newLogger("debug")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(l).NotTo(BeNil())

	_, err = newLogger("loud")
	g.Expect(err).To(HaveOccurred())
}

func TestLoadSceneDefaults(t *testing.T) {
	g := NewWithT(t)

	cfg, scene, err := loadScene(sceneCmd(t, "run"), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Mode).To(Equal("wind_tunnel"))
	g.Expect(scene).To(Equal("wind_tunnel"))
}

func TestLoadScenePreset(t *testing.T) {
	g := NewWithT(t)
	cmd := sceneCmd(t, "run")
	preset = "cylinder"

	cfg, scene, err := loadScene(cmd, []string{"tunnel"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(scene).To(Equal("cylinder"))
	g.Expect(cfg.Obstacle.Kind).To(Equal("circle"))
}

func TestLoadSceneRejectsUnknowns(t *testing.T) {
	g := NewWithT(t)

	_, _, err := loadScene(sceneCmd(t, "run"), []string{"ocean"})
	g.Expect(err).To(MatchError(ContainSubstring("unknown boundary mode")))

	cmd := sceneCmd(t, "run")
	preset = "volcano"
	_, _, err = loadScene(cmd, []string{"tank"})
	g.Expect(err).To(MatchError(ContainSubstring("unknown preset")))
}

func TestLoadSceneConfigFileMode(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "tank.yaml")
	tank := config.DefaultConfig()
	tank.Mode = "gravity_tank"
	g.Expect(config.Save(path, tank)).To(Succeed())

	cmd := sceneCmd(t, "run")
	configFile = path
	cfg, scene, err := loadScene(cmd, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Mode).To(Equal("gravity_tank"))
	g.Expect(scene).To(Equal("tank"))

	_, _, err = loadScene(cmd, []string{"tank"})
	g.Expect(err).NotTo(HaveOccurred())

	_, _, err = loadScene(cmd, []string{"tunnel"})
	g.Expect(err).To(MatchError(ContainSubstring("conflicts with gravity_tank")))
}

func TestApplyFlagsKeepsCellSize(t *testing.T) {
	g := NewWithT(t)
	cmd := sceneCmd(t, "run")
	preset = "cylinder"
	g.Expect(cmd.Flags().Set("x-cells", "61")).To(Succeed())
	g.Expect(cmd.Flags().Set("iterations", "25")).To(Succeed())

	cfg, _, err := loadScene(cmd, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Grid.XCells).To(Equal(61))
	g.Expect(cfg.Grid.Width).To(BeNumerically("~", 610, 1e-9))
	g.Expect(cfg.Grid.YCells).To(Equal(62))
	g.Expect(cfg.Fluid.Iterations).To(Equal(25))
}

func TestApplyFlagsObstacle(t *testing.T) {
	g := NewWithT(t)
	cmd := sceneCmd(t, "run")
	for name, value := range map[string]string{
		"obstacle":        "circle",
		"obstacle-x":      "20",
		"obstacle-y":      "12",
		"obstacle-radius": "4",
	} {
		g.Expect(cmd.Flags().Set(name, value)).To(Succeed())
	}

	cfg, _, err := loadScene(cmd, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Obstacle.Kind).To(Equal("circle"))
	g.Expect(cfg.Obstacle.X).To(Equal(20.0))
	g.Expect(cfg.Obstacle.Y).To(Equal(12.0))
	g.Expect(cfg.Obstacle.Radius).To(Equal(4.0))
}

func TestApplyFlagsIgnoresUnsetFlags(t *testing.T) {
	g := NewWithT(t)
	cmd := sceneCmd(t, "live")
	dt = 99

	cfg, _, err := loadScene(cmd, nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(cfg.Dt).NotTo(Equal(99.0))
}
