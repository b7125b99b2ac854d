//go:build windows

package screenshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// captureScript drives PowerShell to locate Studio's top-level window via
// the Win32 FindWindow/PrintWindow APIs and dump it to a bitmap. It is
// intentionally self-contained (no external PS modules) since the host
// environment cannot be assumed to have one installed.
const captureScript = `
Add-Type -AssemblyName System.Drawing
Add-Type @"
using System;
using System.Runtime.InteropServices;
public class Native {
  [DllImport("user32.dll")] public static extern IntPtr FindWindow(string lpClassName, string lpWindowName);
  [DllImport("user32.dll")] public static extern bool PrintWindow(IntPtr hwnd, IntPtr hdcBlt, uint nFlags);
  [DllImport("user32.dll")] public static extern bool GetWindowRect(IntPtr hWnd, out RECT lpRect);
  public struct RECT { public int Left; public int Top; public int Right; public int Bottom; }
}
"@
$hwnd = [Native]::FindWindow($null, "Roblox Studio")
if ($hwnd -eq [IntPtr]::Zero) { throw "Roblox Studio window not found" }
$rect = New-Object Native+RECT
[Native]::GetWindowRect($hwnd, [ref]$rect) | Out-Null
$width = $rect.Right - $rect.Left
$height = $rect.Bottom - $rect.Top
$bitmap = New-Object System.Drawing.Bitmap $width, $height
$graphics = [System.Drawing.Graphics]::FromImage($bitmap)
$hdc = $graphics.GetHdc()
[Native]::PrintWindow($hwnd, $hdc, 2) | Out-Null
$graphics.ReleaseHdc($hdc)
$bitmap.Save("%s", [System.Drawing.Imaging.ImageFormat]::Png)
`

// captureNative invokes PowerShell to locate and capture Studio's window,
// writing a PNG to a fresh temp file.
func captureNative(parent context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	f, err := os.CreateTemp("", "studio-screenshot-*.png")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	f.Close()

	script := fmt.Sprintf(captureScript, path)
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("powershell capture: %w: %s", err, out)
	}
	return path, nil
}
