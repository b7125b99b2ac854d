// Package auxiliary implements the bootstrap half of C6: the Luau
// source installed into the host on first use of an input-lane tool,
// and the probe-then-install logic that runs ahead of it.
package auxiliary

// InputPollerSource is installed as a Script under ServerScriptService.
// It polls the loopback input lane and rebroadcasts each command to
// every client over a RemoteEvent.
const InputPollerSource = `-- Auto-installed by the MCP bridge for input simulation support
local HttpService = game:GetService("HttpService")
local ReplicatedStorage = game:GetService("ReplicatedStorage")
local Players = game:GetService("Players")

local MCP_URL = "http://localhost:44755/mcp/input"
local POLL_INTERVAL = 0.1

local inputEvent = ReplicatedStorage:FindFirstChild("MCPInputCommand")
if not inputEvent then
	inputEvent = Instance.new("RemoteEvent")
	inputEvent.Name = "MCPInputCommand"
	inputEvent.Parent = ReplicatedStorage
end

local function processCommand(command)
	for _, player in Players:GetPlayers() do
		inputEvent:FireClient(player, command)
	end
end

local function pollLoop()
	while true do
		local ok, result = pcall(function()
			local response = HttpService:GetAsync(MCP_URL)
			return HttpService:JSONDecode(response)
		end)
		if ok and result and result.commands then
			for _, command in ipairs(result.commands) do
				processCommand(command)
			end
		end
		task.wait(POLL_INTERVAL)
	end
end

task.spawn(pollLoop)
`

// InputHandlerSource is installed as a LocalScript under
// StarterPlayerScripts. It receives the broadcast RemoteEvent and
// synthesizes the actual keyboard/mouse/GUI input client-side.
const InputHandlerSource = `-- Auto-installed by the MCP bridge for input simulation support
local ReplicatedStorage = game:GetService("ReplicatedStorage")
local Players = game:GetService("Players")

local player = Players.LocalPlayer

local KEY_MAP = {
	A = Enum.KeyCode.A, B = Enum.KeyCode.B, C = Enum.KeyCode.C, D = Enum.KeyCode.D,
	E = Enum.KeyCode.E, F = Enum.KeyCode.F, G = Enum.KeyCode.G, H = Enum.KeyCode.H,
	I = Enum.KeyCode.I, J = Enum.KeyCode.J, K = Enum.KeyCode.K, L = Enum.KeyCode.L,
	M = Enum.KeyCode.M, N = Enum.KeyCode.N, O = Enum.KeyCode.O, P = Enum.KeyCode.P,
	Q = Enum.KeyCode.Q, R = Enum.KeyCode.R, S = Enum.KeyCode.S, T = Enum.KeyCode.T,
	U = Enum.KeyCode.U, V = Enum.KeyCode.V, W = Enum.KeyCode.W, X = Enum.KeyCode.X,
	Y = Enum.KeyCode.Y, Z = Enum.KeyCode.Z,
	Space = Enum.KeyCode.Space, Return = Enum.KeyCode.Return,
	Tab = Enum.KeyCode.Tab, Escape = Enum.KeyCode.Escape,
	LeftShift = Enum.KeyCode.LeftShift, LeftControl = Enum.KeyCode.LeftControl,
	Up = Enum.KeyCode.Up, Down = Enum.KeyCode.Down,
	Left = Enum.KeyCode.Left, Right = Enum.KeyCode.Right,
}

local MOUSE_MAP = {
	Left = Enum.UserInputType.MouseButton1,
	Right = Enum.UserInputType.MouseButton2,
	Middle = Enum.UserInputType.MouseButton3,
}

local inputEvent = ReplicatedStorage:WaitForChild("MCPInputCommand")

local function findGuiByPath(path)
	local parts = string.split(path, ".")
	local current = player:WaitForChild("PlayerGui")
	for _, part in ipairs(parts) do
		current = current and current:FindFirstChild(part)
	end
	return current
end

inputEvent.OnClientEvent:Connect(function(command)
	if command.command_type == "gui_click" then
		local target = findGuiByPath(command.data.path)
		if target and target:IsA("GuiButton") then
			target.MouseButton1Click:Fire()
		end
		return
	end

	if command.data.input_type == "keyboard" then
		local keyCode = KEY_MAP[command.data.key]
		if not keyCode then return end
		game:GetService("VirtualInputManager"):SendKeyEvent(true, keyCode, false, game)
		if command.data.action == "tap" then
			task.wait(0.05)
			game:GetService("VirtualInputManager"):SendKeyEvent(false, keyCode, false, game)
		elseif command.data.action == "release" then
			game:GetService("VirtualInputManager"):SendKeyEvent(false, keyCode, false, game)
		end
	elseif command.data.input_type == "mouse" then
		local button = MOUSE_MAP[command.data.key] or Enum.UserInputType.MouseButton1
		game:GetService("VirtualInputManager"):SendMouseButtonEvent(
			command.data.mouse_x or 0, command.data.mouse_y or 0, 0, true, game, 0)
	end
end)
`

// checkScriptsCode is run on the host (via the run_code tool path) to
// test whether both helper scripts are already present.
const checkScriptsCode = `
local poller = game:GetService("ServerScriptService"):FindFirstChild("MCPInputPoller")
local sps = game:GetService("StarterPlayer"):FindFirstChild("StarterPlayerScripts")
local handler = sps and sps:FindFirstChild("MCPInputHandler")
return tostring(poller ~= nil) .. "," .. tostring(handler ~= nil)
`
