package extract

// SamplePaperTitle is the display title of the bundled demo paper.
const SamplePaperTitle = "Attention-Guided CNNs for Crop Disease Detection"

// SamplePaper is a small self-contained paper used by the demo endpoint so
// the full pipeline can be exercised without uploading a document.
const SamplePaper = `# Attention-Guided Convolutional Networks for Crop Disease Detection

## Abstract
We present AG-CropNet, an attention-guided convolutional network for detecting
crop diseases from leaf photographs. On the PlantVillage dataset our model
reaches 96.3% accuracy, outperforming a ResNet-50 baseline by 2.1 points while
using 40% fewer parameters.

## 1. Data Collection
We use the public PlantVillage dataset of 54,306 leaf images covering 14 crop
species and 38 disease classes. Images were collected under controlled lighting
conditions and labeled by plant pathologists.

## 2. Preprocessing
All images are resized to 224x224 pixels and normalized with per-channel mean
and standard deviation. We apply random horizontal flips, rotations up to 20
degrees, and color jitter as augmentation during training only.

## 3. Data Partition
The dataset is split 80/10/10 into training, validation, and test sets,
stratified by disease class so rare classes remain represented in every split.

## 4. Model
AG-CropNet is a convolutional network with four stages. Each stage ends with a
spatial attention module that reweights feature maps toward lesion regions. The
attention module is our main contribution: it uses a 1x1 convolution followed
by a sigmoid gate and adds fewer than 50k parameters per stage. A global
average pooling layer feeds a single fully connected classification layer.

## 5. Training
We train for 60 epochs with the Adam optimizer, a learning rate of 3e-4 decayed
by cosine annealing, and a batch size of 64. Cross-entropy loss is used with
label smoothing of 0.1. Training takes four hours on a single V100 GPU.

## 6. Evaluation
We report top-1 accuracy and macro F1 on the held-out test set. AG-CropNet
achieves 96.3% accuracy and 0.941 macro F1. The ResNet-50 baseline trained with
the same schedule reaches 94.2% accuracy and 0.913 macro F1. Ablation without
the attention modules drops accuracy to 94.8%, confirming their contribution.

## 7. Results
Attention-guided feature reweighting improves disease detection, especially for
visually similar classes such as early and late blight. The model is small
enough for on-device inference in field conditions.
`
