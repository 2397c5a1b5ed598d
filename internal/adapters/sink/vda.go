package sink

// vdaLayout describes one published shape of the shell's undocumented
// IVirtualDesktopManagerInternal interface: its IID and the vtable slot of
// the method that sets the wallpaper of every virtual desktop.
type vdaLayout struct {
	minBuild uint32
	iid      string
	slot     int
}

// vdaLayouts lists the known shapes, newest first. Builds sharing a build
// number but differing in revision may expose either shape, so every layout
// at or below the running build is tried in turn.
var vdaLayouts = []vdaLayout{
	// 22631.3085 and later, 24H2: SwitchDesktopAndMoveForegroundView added.
	{minBuild: 22631, iid: "{53F5CA0B-158F-4124-900C-057158060B27}", slot: 18},
	// 22621.2215 and later: HMONITOR parameters removed.
	{minBuild: 22621, iid: "{A3175F2D-239C-4BD2-8AA0-EEBA8B0B138E}", slot: 17},
	// 22000: per-monitor methods with HMONITOR parameters.
	{minBuild: 22000, iid: "{B2F925B9-5A0F-4D2E-9F4D-2B1507593C10}", slot: 18},
}

// vdaLayoutsFor returns the candidate layouts for a build, newest first.
func vdaLayoutsFor(build uint32) []vdaLayout {
	var out []vdaLayout
	for _, l := range vdaLayouts {
		if build >= l.minBuild {
			out = append(out, l)
		}
	}
	return out
}
