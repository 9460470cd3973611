package shared

// Icons for UI elements - colorless Unicode glyphs that respect terminal themes.
const (
	IconSent     = "✓" // Check mark - delivered message
	IconReply    = "◆" // Black diamond - echoed reply
	IconUser     = "❯" // Heavy right angle bracket - the local user
	IconSelected = "▸" // Small right-pointing triangle - selected quick reply
	IconBullet   = "•" // Bullet - list items
	IconFloating = "◇" // White diamond - floating tray
	IconDocked   = "□" // White square - docked tray
)
