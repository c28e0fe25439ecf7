package profile

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// WriteSteamHint writes a plain-text Steam Input deadzone suggestion next
// to the profile at path and returns the hint file's path. The suggested
// per-stick percentage is the larger of the two axis deadzones.
func WriteSteamHint(p ControllerProfile, path string) (string, error) {
	leftPct := int(math.Round(math.Max(p.Left.X.Deadzone, p.Left.Y.Deadzone) * 100))
	rightPct := int(math.Round(math.Max(p.Right.X.Deadzone, p.Right.Y.Deadzone) * 100))

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	hintPath := filepath.Join(filepath.Dir(path), base+"_steam_deadzone_hint.txt")

	hint := fmt.Sprintf(`Steam Input deadzone suggestion
==============================
Controller: %s
Generated: %s

Left stick deadzone:  %d%%
Right stick deadzone: %d%%

Apply in Steam:
1. Steam -> Settings -> Controller -> Calibration & Advanced Settings
2. Set Left/Right stick deadzone to the values above
3. Test in game and adjust +/- 2%% if needed
`, p.ControllerName, p.GeneratedAt, leftPct, rightPct)

	if err := os.WriteFile(hintPath, []byte(hint), 0o644); err != nil {
		return "", fmt.Errorf("profile: write steam hint: %w", err)
	}
	return hintPath, nil
}
