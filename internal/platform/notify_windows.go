//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

func psQuote(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	return "'" + escaped + "'"
}

// toastScript builds the PowerShell that shows one toast. Lines fill the
// template's text slots in order.
func toastScript(lines []string, icon string) string {
	tmpl := "ToastText02"
	if len(lines) > 2 {
		tmpl = "ToastText04"
	}
	if icon != "" {
		tmpl = strings.Replace(tmpl, "Text", "ImageAndText", 1)
	}
	var sb strings.Builder
	sb.WriteString(`[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType=Windows Runtime] > $null; `)
	fmt.Fprintf(&sb, `$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::%s); `, tmpl)
	sb.WriteString(`$texts = $template.GetElementsByTagName("text"); `)
	for i, line := range lines {
		fmt.Fprintf(&sb, `$texts.Item(%d).AppendChild($template.CreateTextNode(%s)) > $null; `, i, psQuote(line))
	}
	if icon != "" {
		fmt.Fprintf(&sb, `$template.GetElementsByTagName("image").Item(0).SetAttribute("src", %s); `, psQuote(icon))
	}
	sb.WriteString(`$toast = [Windows.UI.Notifications.ToastNotification]::new($template); `)
	fmt.Fprintf(&sb, `[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%s).Show($toast);`, psQuote(AppName))
	return sb.String()
}

// Notify displays a toast notification using the Windows notification center.
func Notify(title, body string, opts Options) error {
	lines := []string{title}
	if opts.Subtitle != "" {
		lines = append(lines, opts.Subtitle)
	}
	lines = append(lines, body)
	script := toastScript(lines, strings.TrimSpace(opts.IconPath))
	return exec.Command("powershell.exe", "-NoProfile", "-Command", script).Run()
}
