// Package worker provides the background execution pool for ingestion jobs.
// A submitted job runs detached from any request/response cycle; the record
// store is its only channel back to the client.
package worker

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Job is a unit of background work.
type Job interface {
	Execute() error
	ID() string
}

// Worker pulls jobs from its own channel after registering it in the shared
// pool.
type Worker struct {
	id         int
	workerPool chan chan Job
	jobChannel chan Job
	quit       chan bool
	wg         *sync.WaitGroup
	log        *logrus.Logger
}

// NewWorker creates a Worker bound to the dispatcher's pool.
func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, log *logrus.Logger) Worker {
	return Worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan Job),
		quit:       make(chan bool),
		wg:         wg,
		log:        log,
	}
}

// Start makes the worker listen for jobs on its channel.
func (w Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.log.WithFields(logrus.Fields{"worker": w.id, "job": job.ID()}).Info("Worker started job")
				if err := job.Execute(); err != nil {
					// Job errors are persisted by the job itself; this log is
					// the only other trace of them.
					w.log.WithFields(logrus.Fields{"worker": w.id, "job": job.ID(), "error": err}).Error("Worker job failed")
				} else {
					w.log.WithFields(logrus.Fields{"worker": w.id, "job": job.ID()}).Info("Worker finished job")
				}
			case <-w.quit:
				return
			}
		}
	}()
}

// Stop signals the worker to exit after its current job.
func (w Worker) Stop() {
	go func() {
		w.quit <- true
	}()
}

// Dispatcher fans submitted jobs out to a fixed pool of workers.
type Dispatcher struct {
	maxWorkers int
	workerPool chan chan Job
	jobQueue   chan Job
	workers    []Worker
	wg         sync.WaitGroup
	quit       chan bool
	log        *logrus.Logger
}

// NewDispatcher creates a Dispatcher with maxWorkers workers and a buffered
// queue of jobQueueSize jobs.
func NewDispatcher(maxWorkers, jobQueueSize int, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		maxWorkers: maxWorkers,
		workerPool: make(chan chan Job, maxWorkers),
		jobQueue:   make(chan Job, jobQueueSize),
		workers:    make([]Worker, 0, maxWorkers),
		quit:       make(chan bool),
		log:        log,
	}
}

// Run starts the workers and the dispatch loop.
func (d *Dispatcher) Run() {
	d.log.WithField("workers", d.maxWorkers).Info("Dispatcher starting")
	for i := 1; i <= d.maxWorkers; i++ {
		worker := NewWorker(i, d.workerPool, &d.wg, d.log)
		d.workers = append(d.workers, worker)
		worker.Start()
	}
	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.jobQueue:
			go func(job Job) {
				jobChannel := <-d.workerPool
				jobChannel <- job
			}(job)
		case <-d.quit:
			return
		}
	}
}

// Submit queues a job without blocking. A full queue is reported to the
// caller so the record does not silently stay in processing forever.
func (d *Dispatcher) Submit(job Job) bool {
	select {
	case d.jobQueue <- job:
		d.log.WithField("job", job.ID()).Info("Job submitted to queue")
		return true
	default:
		d.log.WithField("job", job.ID()).Error("Job queue full, job rejected")
		return false
	}
}

// Stop shuts down the dispatch loop and waits for workers to finish their
// current jobs.
func (d *Dispatcher) Stop() {
	d.quit <- true
	for _, worker := range d.workers {
		worker.Stop()
	}
	d.wg.Wait()
	d.log.Info("Dispatcher shutdown complete")
}
