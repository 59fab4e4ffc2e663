package lib

import (
	"encoding/json"
	"log"
	"os"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

const TopicTransactionUpdates = "payment-transaction-updates"

var kafkaProducer *kafka.Producer

func getKafkaProducer(clientId string) (*kafka.Producer, error) {
	if kafkaProducer != nil {
		return kafkaProducer, nil
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"client.id":         clientId,
		"acks":              "all",
	})
	if err != nil {
		return nil, err
	}
	kafkaProducer = p
	return p, nil
}

func NewKafkaProducer(p *kafka.Producer) {
	kafkaProducer = p
}

// KafkaProduceMessage publishes a settlement event. Failures are the
// caller's to log; settlement never depends on the broker being up.
func KafkaProduceMessage(clientId string, topic string, payload map[string]any) error {
	if kafkaProducer == nil && os.Getenv("KAFKA_BROKER") == "" {
		return nil
	}
	p, err := getKafkaProducer(clientId)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return err
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, nil)
	if err != nil {
		log.Printf("Error producing to topic %s: %s\n", topic, err.Error())
		return err
	}
	return nil
}
