package message

import (
	"fmt"

	"arena/internal/network"
)

// Sender é qualquer destino que aceita uma mensagem de saída. Isso
// desacopla este pacote de implementações concretas como a sessão do
// jogador ou o network.Client.
type Sender interface {
	Send() chan<- network.Message
}

// SendError formata e envia um evento de erro para o cliente.
func SendError(sender Sender, format string, args ...interface{}) {
	sender.Send() <- Error(fmt.Sprintf(format, args...))
}
