package kafka

import (
	"github.com/IBM/sarama"
)

// NewSyncProducer builds the producer used for the message integration
// stream. Hash partitioning keys by channel so a channel's events land on
// one partition in order.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "collab-service"

	return sarama.NewSyncProducer(brokers, config)
}
