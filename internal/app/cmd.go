package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandReset は起動中のサーバーに初期データへのリセットを要求することを示す。
	CommandReset Command = "reset"
	// CommandCheckSeed は初期データを読み込み、検証だけを行うことを示す。
	CommandCheckSeed Command = "check-seed"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "healthcheck":
		return CommandHealthcheck
	case "reset":
		return CommandReset
	case "check-seed":
		return CommandCheckSeed
	default:
		return CommandServe
	}
}
